package procedure

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-psych/adaptive/psi"
	"github.com/cwbudde/algo-psych/psychometric"
)

// Responder presents a stimulus and returns the listener's response.
type Responder interface {
	Respond(ctx context.Context, stimulus float64) (psychometric.Response, error)
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, stimulus float64) (psychometric.Response, error)

func (f ResponderFunc) Respond(ctx context.Context, stimulus float64) (psychometric.Response, error) {
	return f(ctx, stimulus)
}

// TrialRecord is one completed trial of a session.
type TrialRecord struct {
	N        int
	Stimulus float64
	Response psychometric.Response
	Next     float64
	Track    int
}

// Result is the outcome of Session.Run.
type Result struct {
	Trials   []TrialRecord
	Estimate Estimate
	// Saved reports whether a posterior was written to the store.
	Saved bool
}

// Session drives one procedure to completion.
type Session struct {
	proc  Procedure
	log   *zap.Logger
	store psi.Store
	label string
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the trial logger. The default discards everything.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithStore saves the procedure's posterior under label when the session
// ends. Procedures without a posterior ignore it.
func WithStore(store psi.Store, label string) SessionOption {
	return func(s *Session) {
		s.store, s.label = store, label
	}
}

// NewSession creates a session for p.
func NewSession(p Procedure, opts ...SessionOption) *Session {
	s := &Session{proc: p, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run presents trials until the procedure is done, the responder fails or
// ctx is cancelled. The posterior is saved in every case once at least one
// trial has completed; the returned Result covers the completed trials.
func (s *Session) Run(ctx context.Context, r Responder) (res Result, err error) {
	log := s.log.With(zap.String("label", s.label))
	log.Info("session started", zap.String("kind", s.proc.Estimate().Kind))

	defer func() {
		res.Estimate = s.proc.Estimate()

		if len(res.Trials) > 0 {
			saved, serr := s.save(log)
			res.Saved = saved

			if err == nil {
				err = serr
			}
		}

		log.Info("session ended",
			zap.Int("trials", len(res.Trials)),
			zap.Float64("threshold", res.Estimate.Threshold),
			zap.Error(err))
	}()

	for n := 1; !s.proc.Done(); n++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		x := s.proc.Stimulus()

		resp, err := r.Respond(ctx, x)
		if err != nil {
			return res, fmt.Errorf("trial %d: respond: %w", n, err)
		}

		step, err := s.proc.Update(resp)
		if err != nil {
			return res, fmt.Errorf("trial %d: %w", n, err)
		}

		res.Trials = append(res.Trials, TrialRecord{
			N:        n,
			Stimulus: x,
			Response: resp,
			Next:     step.Next,
			Track:    step.Track,
		})

		log.Debug("trial",
			zap.Int("n", n),
			zap.Float64("stimulus", x),
			zap.Stringer("response", resp),
			zap.Float64("next", step.Next),
			zap.Int("track", step.Track))
	}

	return res, nil
}

func (s *Session) save(log *zap.Logger) (bool, error) {
	if s.store == nil {
		return false, nil
	}

	snap, ok := SnapshotOf(s.proc)
	if !ok {
		return false, nil
	}

	snap.Label = s.label
	if err := s.store.Save(snap); err != nil {
		log.Warn("saving posterior failed", zap.Error(err))
		return false, fmt.Errorf("save posterior: %w", err)
	}

	log.Debug("posterior saved", zap.Int("trials", snap.Trials))

	return true, nil
}
