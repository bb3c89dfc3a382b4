// Package collision resolves a file landing on a destination that is
// already occupied. Identical content is dropped; different content is kept
// under a timestamped name so nothing is overwritten.
package collision

import (
	"fmt"

	"github.com/jamesainslie/tidy/pkg/tidy/naming"
	"github.com/jamesainslie/tidy/pkg/tidy/oplog"
	"github.com/jamesainslie/tidy/pkg/tidy/scanner"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Hasher computes the content digest of a single file.
type Hasher interface {
	Hash(path string) (string, error)
}

// FileOps performs the mutations a resolution needs.
type FileOps interface {
	Move(src, dest string) types.OperationResult
	Delete(path string) types.OperationResult
}

// Outcome classifies a collision.
type Outcome int

// Collision outcomes.
const (
	// Duplicate means source and destination hold the same content.
	Duplicate Outcome = iota
	// Version means the contents differ and the source is kept under a
	// stamped name.
	Version
)

func (o Outcome) String() string {
	if o == Duplicate {
		return "duplicate"
	}
	return "version"
}

// Prediction describes what Resolve would do.
type Prediction struct {
	Outcome Outcome
	// Destination is the stamped path for Version outcomes.
	Destination string
}

// Handler resolves destination collisions.
type Handler struct {
	hasher Hasher
	ops    FileOps
	log    oplog.Logger
}

// New returns a Handler. A nil l disables operation logging.
func New(h Hasher, ops FileOps, l oplog.Logger) *Handler {
	return &Handler{hasher: h, ops: ops, log: oplog.OrNop(l)}
}

// Resolve handles src colliding with the existing file at dest.
func (h *Handler) Resolve(src, dest string) types.OperationResult {
	p, err := h.Predict(src, dest)
	if err != nil {
		return types.Fail(err.Error())
	}

	switch p.Outcome {
	case Duplicate:
		res := h.ops.Delete(src)
		if res.Success {
			h.log.LogOperation(oplog.Record{
				Kind:    oplog.KindDuplicate,
				Source:  src,
				Dest:    dest,
				Message: "Duplicate removed: " + src,
			})
			return types.Ok("Duplicate removed.", "")
		}
		return res
	default:
		res := h.ops.Move(src, p.Destination)
		if res.Success {
			h.log.LogOperation(oplog.Record{
				Kind:    oplog.KindVersion,
				Source:  src,
				Dest:    p.Destination,
				Message: fmt.Sprintf("Version preserved: %s -> %s", src, p.Destination),
			})
		}
		return res
	}
}

// Predict reports what Resolve would do without touching the filesystem.
func (h *Handler) Predict(src, dest string) (Prediction, error) {
	srcDigest, err := h.hasher.Hash(src)
	if err != nil {
		return Prediction{}, fmt.Errorf("hash %s: %w", src, err)
	}
	destDigest, err := h.hasher.Hash(dest)
	if err != nil {
		return Prediction{}, fmt.Errorf("hash %s: %w", dest, err)
	}

	if srcDigest == destDigest {
		return Prediction{Outcome: Duplicate}, nil
	}

	rec, err := scanner.Stat(src)
	if err != nil {
		return Prediction{}, fmt.Errorf("stat %s: %w", src, err)
	}
	return Prediction{
		Outcome:     Version,
		Destination: naming.StampUnique(dest, rec.Timestamp()),
	}, nil
}
