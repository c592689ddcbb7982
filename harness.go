package main

import (
	"fmt"
	"math"
	"time"
)

// Harness runs an operation a fixed number of times and reduces the samples
// to a mean. Repetitions never overlap: each one blocks until its operation
// completes, by design, since concurrent timings would contend for cache and
// scheduler and invalidate each other.
type Harness struct {
	Repetitions int
	// MeasureSetup puts session acquisition inside the timed region. Load
	// benchmarks intentionally include connection/file-open cost, scan and
	// random-access benchmarks intentionally exclude it.
	MeasureSetup bool
}

// Measurement holds the reduced samples of one harness run.
type Measurement struct {
	MeanMs      float64
	TotalMs     float64
	Repetitions int
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Measure executes the operation exactly R times, each under a freshly
// acquired session released before the next repetition begins. Any failing
// repetition aborts immediately without averaging partial samples.
func (h Harness) Measure(op Operation) (Measurement, error) {
	if h.Repetitions < 1 {
		return Measurement{}, fmt.Errorf("repetitions must be >= 1, got %v", h.Repetitions)
	}
	total := 0.0
	for i := 0; i < h.Repetitions; i++ {
		elapsed, err := h.measureOnce(op)
		if err != nil {
			return Measurement{}, fmt.Errorf("repetition #%v/%v of %v failed: %w", i+1, h.Repetitions, op.Name(), err)
		}
		total += elapsed
	}
	return Measurement{
		MeanMs:      round2(total / float64(h.Repetitions)),
		TotalMs:     round2(total),
		Repetitions: h.Repetitions,
	}, nil
}

func (h Harness) measureOnce(op Operation) (float64, error) {
	var start time.Time
	if h.MeasureSetup {
		start = time.Now()
	}
	session, err := op.Prepare()
	if err != nil {
		return 0, fmt.Errorf("failed to prepare session: %w", err)
	}
	if !h.MeasureSetup {
		start = time.Now()
	}
	runErr := session.Run()
	elapsed := time.Since(start)
	if err := session.Close(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return 0, runErr
	}
	return float64(elapsed.Nanoseconds()) / 1e6, nil
}
