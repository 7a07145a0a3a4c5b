// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lockset computes the set of locks held at every program point of a function.
//
// The analysis is a forward may-analysis: the state at the entry of a block is the union of the states at the exit
// of its predecessors. Locks are identified by their canonical value (see [ir.Canonicalize]), which means that two
// different values pointing to the same lock are seen as two different locks. The analysis is best-effort; indirect
// calls and try-locks are handled according to a Policy.
package lockset

import (
	"github.com/awslabs/ar-go-lockpath/analysis/classify"
	"github.com/awslabs/ar-go-lockpath/analysis/config"
	"github.com/awslabs/ar-go-lockpath/analysis/ir"
)

// Policy controls the transfer function on the calls whose effect on locks is uncertain.
type Policy struct {
	// TryAcquireAdds adds the lock of a try-acquire call to the held set
	TryAcquireAdds bool
	// IndirectClears empties the held set at an indirect call
	IndirectClears bool
}

var (
	// PolicyConservative never assumes a try-lock succeeded and assumes indirect calls may release anything
	PolicyConservative = Policy{TryAcquireAdds: false, IndirectClears: true}
	// PolicyOptimisticTry assumes try-locks succeed
	PolicyOptimisticTry = Policy{TryAcquireAdds: true, IndirectClears: true}
	// PolicyIgnoreIndirect assumes try-locks succeed and indirect calls do not change the held locks
	PolicyIgnoreIndirect = Policy{TryAcquireAdds: true, IndirectClears: false}
)

// Options are the options of the solver.
type Options struct {
	Policy
	// Classifier classifies the callees. If nil, a case-folding classifier with the default tables is used.
	Classifier *classify.Classifier
	// MaxIterations bounds the number of blocks processed. If <= 0, config.DefaultMaxSolverIterations is used.
	MaxIterations int
	// Logger receives warnings. May be nil.
	Logger *config.LogGroup
}

// DefaultOptions returns the conservative options with the default classifier.
func DefaultOptions() Options {
	return Options{
		Policy:        PolicyConservative,
		Classifier:    classify.New(true),
		MaxIterations: config.DefaultMaxSolverIterations,
	}
}

// OptionsFromConfig returns the solver options set by the config, using classifier c and logger.
func OptionsFromConfig(cfg *config.Config, c *classify.Classifier, logger *config.LogGroup) Options {
	return Options{
		Policy:        Policy{TryAcquireAdds: cfg.TryAcquireAdds, IndirectClears: cfg.IndirectClears},
		Classifier:    c,
		MaxIterations: cfg.MaxSolverIterations,
		Logger:        logger,
	}
}

func (o Options) normalize() Options {
	if o.Classifier == nil {
		o.Classifier = classify.New(true)
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = config.DefaultMaxSolverIterations
	}
	return o
}

// Result holds the lock sets at the entry and exit of every block.
type Result struct {
	In  map[ir.BlockID]LockSet
	Out map[ir.BlockID]LockSet

	// Iterations is the number of blocks processed
	Iterations int

	// Converged is false when the solver stopped at the iteration ceiling. In and Out are then a snapshot
	// that may not be a fixpoint.
	Converged bool

	fn   *ir.Function
	opts Options
}

// Solve computes the held locks of every block of f.
func Solve(f *ir.Function, opts Options) *Result {
	opts = opts.normalize()
	res := &Result{
		In:        make(map[ir.BlockID]LockSet, len(f.Blocks)),
		Out:       make(map[ir.BlockID]LockSet, len(f.Blocks)),
		Converged: true,
		fn:        f,
		opts:      opts,
	}
	if f.Empty() {
		opts.Logger.Warnf("function %s has no blocks, nothing to solve", f.Name)
		return res
	}
	for b := range f.Blocks {
		res.In[ir.BlockID(b)] = nil
		res.Out[ir.BlockID(b)] = nil
	}

	queue := make([]ir.BlockID, 0, len(f.Blocks))
	inQueue := make([]bool, len(f.Blocks))
	push := func(b ir.BlockID) {
		if !inQueue[b] {
			inQueue[b] = true
			queue = append(queue, b)
		}
	}
	for b := range f.Blocks {
		push(ir.BlockID(b))
	}

	// a block is skipped when its entry state did not change, but only once its exit state has been computed
	done := make([]bool, len(f.Blocks))
	for len(queue) > 0 {
		if res.Iterations >= opts.MaxIterations {
			opts.Logger.Warnf("lock-state analysis of %s did not converge after %d iterations", f.Name,
				res.Iterations)
			res.Converged = false
			return res
		}
		b := queue[0]
		queue = queue[1:]
		inQueue[b] = false
		res.Iterations++

		var in LockSet
		if b != f.Entry {
			for _, p := range f.Blocks[b].Preds {
				in = in.Union(res.Out[p])
			}
		}
		if done[b] && in.Equal(res.In[b]) {
			continue
		}
		done[b] = true
		res.In[b] = in
		out := Transfer(f, b, in, opts)
		if !out.Equal(res.Out[b]) {
			res.Out[b] = out
			for _, s := range f.Blocks[b].Succs {
				push(s)
			}
		}
	}
	return res
}
