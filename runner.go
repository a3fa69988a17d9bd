package swapbench

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
)

// Phase is the lifecycle state of a scenario run.
type Phase int32

const (
	PhaseInitialized Phase = iota // container created from the canonical dataset
	PhaseSpawning                 // workers being started
	PhaseRunning                  // workers executing
	PhaseJoining                  // runner waiting for every worker
	PhaseCompleted                // all workers returned, invariants hold
	PhaseFailed                   // a worker or the final check failed
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialized:
		return "initialized"
	case PhaseSpawning:
		return "spawning"
	case PhaseRunning:
		return "running"
	case PhaseJoining:
		return "joining"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// Report is the outcome of one successful scenario run.
type Report struct {
	Descriptor Descriptor
	Duration   time.Duration // spawn to join
	Mutations  int64         // completed Mutate calls across all workers
	Reads      int64         // checked reads across all workers
	Final      Dataset       // dataset contents after join
}

// Runner drives one scenario descriptor. Each call to Run builds and discards
// its own container, so runs are independent. A Runner must not be used by
// more than one goroutine at a time.
type Runner struct {
	desc     Descriptor
	workload Workload
	logger   *slog.Logger
	build    func(Strategy, Dataset) (Container, error)

	phase     atomix.Int32
	mutations atomix.Int64
	reads     atomix.Int64
}

// NewRunner validates d and prepares its workload. A nil logger means
// slog.Default().
func NewRunner(d Descriptor, logger *slog.Logger) (*Runner, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		desc:     d,
		workload: NewWorkload(d),
		build:    NewContainer,
		logger:   logger.With("strategy", d.Strategy.String(), "threads", d.Threads, "shape", d.Shape.String()),
	}, nil
}

// Descriptor returns the scenario the runner executes.
func (r *Runner) Descriptor() Descriptor { return r.desc }

// Phase returns the lifecycle state of the latest run.
func (r *Runner) Phase() Phase { return Phase(r.phase.LoadAcquire()) }

func (r *Runner) setPhase(p Phase) {
	r.phase.StoreRelease(int32(p))
	r.logger.Debug("scenario phase", "phase", p.String())
}

// Run executes one full scenario: create the container, spawn every worker,
// wait for all of them and verify the final dataset.
//
// Any worker failure fails the whole scenario. Failures from several workers
// are joined; partial results are discarded and nothing is retried.
func (r *Runner) Run() (Report, error) {
	r.mutations.Store(0)
	r.reads.Store(0)

	c, err := r.build(r.desc.Strategy, NewDataset())
	if err != nil {
		r.setPhase(PhaseFailed)
		return Report{}, err
	}
	r.setPhase(PhaseInitialized)

	start := time.Now()
	r.setPhase(PhaseSpawning)

	var wg sync.WaitGroup
	errs := make([]error, r.desc.Threads)
	wg.Add(r.desc.Threads)
	for w := 0; w < r.desc.Threads; w++ {
		go func(id int) {
			defer wg.Done()
			errs[id] = r.work(c, id)
		}(w)
	}
	r.setPhase(PhaseRunning)

	r.setPhase(PhaseJoining)
	wg.Wait()
	elapsed := time.Since(start)

	if err := errors.Join(errs...); err != nil {
		r.setPhase(PhaseFailed)
		r.logger.Error("scenario failed", "error", err)
		return Report{}, err
	}

	final := Derive(c, Dataset.Clone)
	if err := final.Validate(); err != nil {
		r.setPhase(PhaseFailed)
		r.logger.Error("scenario left a corrupt dataset", "error", err, "dataset", final)
		return Report{}, err
	}

	r.setPhase(PhaseCompleted)
	return Report{
		Descriptor: r.desc,
		Duration:   elapsed,
		Mutations:  r.mutations.Load(),
		Reads:      r.reads.Load(),
		Final:      final,
	}, nil
}

// work runs the workload of one worker against the shared container.
// Counts are kept locally and published once, so the counters add no
// contention to the measured loop.
func (r *Runner) work(c Container, id int) (err error) {
	var mutations, reads int64
	defer func() {
		r.mutations.Add(mutations)
		r.reads.Add(reads)
		if p := recover(); p != nil {
			err = &WorkerError{Worker: id, Cause: panicError(p)}
		}
	}()

	oracle := Oracle{Strategy: r.desc.Strategy, Threads: r.desc.Threads, Worker: id}
	for i := 0; i < r.workload.Len(); i++ {
		step := r.workload.Step(i)
		if step.Mutate {
			c.Mutate(mutate)
			mutations++
			oracle.Mutated()
		}

		var checkErr error
		switch step.Read {
		case ReadHead:
			v, ok := readHead(c)
			checkErr = oracle.CheckHead(i, v, ok)
		case ReadSearch:
			v, ok := searchSentinel(c)
			checkErr = oracle.CheckSearch(i, v, ok)
		default:
			continue
		}
		reads++
		if checkErr != nil {
			return &WorkerError{Worker: id, Cause: checkErr}
		}
	}
	return nil
}

func mutate(d Dataset) { SortDescending(d) }

type lookup struct {
	v  int
	ok bool
}

func readHead(c Container) (int, bool) {
	l := Derive(c, func(d Dataset) lookup {
		v, ok := d.Head()
		return lookup{v, ok}
	})
	return l.v, l.ok
}

func searchSentinel(c Container) (int, bool) {
	l := Derive(c, func(d Dataset) lookup {
		v, ok := d.Find(Sentinel)
		return lookup{v, ok}
	})
	return l.v, l.ok
}

// RunScenario is a convenience wrapper: validate d, run it once.
func RunScenario(d Descriptor, logger *slog.Logger) (Report, error) {
	r, err := NewRunner(d, logger)
	if err != nil {
		return Report{}, err
	}
	return r.Run()
}
