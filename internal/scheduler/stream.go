package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"boosterd/pkg/types"
)

type tokenLine struct {
	Token string `json:"token"`
}

type finalLine struct {
	RequestID string             `json:"request_id"`
	Done      bool               `json:"done"`
	State     types.RequestState `json:"state"`
	Content   string             `json:"content"`
	Tokens    int                `json:"tokens"`
	Error     string             `json:"error,omitempty"`
}

// Generate submits a request and streams its tokens to w as NDJSON, one
// object per token, flushing after each line. The final line carries
// done=true with the terminal state and full content. Returns an error
// only when admission fails; generation failures are reported in-band on
// the final line, since the response status is already committed.
func (s *Scheduler) Generate(ctx context.Context, req types.GenerateRequest, w io.Writer, flush func()) error {
	var (
		wmu    sync.Mutex
		parted bool // caller gone; w must not be touched again
	)
	sink := func(token string) {
		wmu.Lock()
		defer wmu.Unlock()
		if parted {
			return
		}
		line, err := json.Marshal(tokenLine{Token: token})
		if err != nil {
			return
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return
		}
		if flush != nil {
			flush()
		}
	}
	r, err := s.submit(ctx, req, sink)
	if err != nil {
		return err
	}

	select {
	case <-r.Done():
	case <-ctx.Done():
		// Client went away. The request keeps running to its own
		// deadline and stays pollable, but w belongs to the departing
		// handler: stop the token feed before returning.
		r.detachSink()
		wmu.Lock()
		parted = true
		wmu.Unlock()
		return fmt.Errorf("client disconnected: %w", ctx.Err())
	}

	st := r.Status()
	wmu.Lock()
	defer wmu.Unlock()
	line, err := json.Marshal(finalLine{
		RequestID: r.ID,
		Done:      true,
		State:     st.State,
		Content:   st.Output,
		Tokens:    st.Tokens,
		Error:     st.Error,
	})
	if err != nil {
		return err
	}
	if _, err := w.Write(append(line, '\n')); err != nil {
		return err
	}
	if flush != nil {
		flush()
	}
	return nil
}
