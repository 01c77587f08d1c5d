// Package validate checks a message's multiplexer tree for bit overlaps and
// frame-length overflows. Each branch of the tree gets its own clone of the
// parent's bit ownership so sibling branches may reuse the same bits (they
// are never both encoded at once) without being allowed to collide with
// bits their ancestors already claimed.
package validate

import (
	"fmt"

	"github.com/kstaniek/go-vector-dbc/internal/bitlayout"
	"github.com/kstaniek/go-vector-dbc/internal/logging"
	"github.com/kstaniek/go-vector-dbc/internal/metrics"
	"github.com/kstaniek/go-vector-dbc/internal/muxtree"
)

// Signal is the minimal view of a signal the validator needs.
type Signal interface {
	muxtree.Descriptor
	Start() int
	Length() int
	Order() bitlayout.ByteOrder
}

// Kind classifies a Violation.
type Kind int

const (
	KindOverlap Kind = iota
	KindFit
)

// Violation describes one overlap or out-of-frame signal. It implements
// error so a strict-mode caller can return it directly.
type Violation struct {
	Kind   Kind
	Signal string
	Other  string // conflicting signal's name, set only for KindOverlap
}

func (v Violation) Error() string {
	if v.Kind == KindFit {
		return fmt.Sprintf("validate: signal %q does not fit in the frame", v.Signal)
	}
	return fmt.Sprintf("validate: signal %q overlaps signal %q", v.Signal, v.Other)
}

// Tree runs the overlap/fit check over root, a message's multiplexer tree,
// against a frame of numBytes bytes.
//
// In strict mode the first violation found is returned as an error and
// traversal stops there. In non-strict mode every violation is collected,
// logged and counted via internal/metrics, and the conflicting signal's
// prior claim is retracted in favor of the new one, matching the original's
// warn-and-continue behavior; Tree never returns an error in this mode.
func Tree[T Signal](root *muxtree.Node[T], numBytes int, strict bool) ([]Violation, error) {
	totalBits := numBytes * 8
	owners := make([]string, totalBits)

	var violations []Violation
	var walk func(n *muxtree.Node[T], owners []string) error
	walk = func(n *muxtree.Node[T], owners []string) error {
		if n == nil {
			return nil
		}
		for _, s := range n.Signals {
			f := bitlayout.Field{Name: s.SignalName(), Start: s.Start(), Length: s.Length(), ByteOrder: s.Order()}
			sb := bitlayout.StartBit(f)
			length := s.Length()
			// owners is indexed by MSB-first stream position; a
			// little-endian signal's bits are contiguous in LSB-first
			// numbering, so each of its bits is mapped into the stream.
			little := s.Order() == bitlayout.LittleEndian
			bitPos := func(i int) int {
				if little {
					p := sb + i
					return 8*(p/8) + 7 - p%8
				}
				return sb + i
			}

			if length <= 0 || sb < 0 || sb+length > totalBits {
				v := Violation{Kind: KindFit, Signal: s.SignalName()}
				if strict {
					return v
				}
				warn(v)
				violations = append(violations, v)
				continue
			}

			conflict := ""
			for i := 0; i < length; i++ {
				if owner := owners[bitPos(i)]; owner != "" && owner != s.SignalName() {
					conflict = owner
					break
				}
			}
			if conflict != "" {
				v := Violation{Kind: KindOverlap, Signal: s.SignalName(), Other: conflict}
				if strict {
					return v
				}
				warn(v)
				violations = append(violations, v)
			}

			for i := 0; i < length; i++ {
				owners[bitPos(i)] = s.SignalName()
			}
		}

		for _, child := range n.Children {
			branch := make([]string, len(owners))
			copy(branch, owners)
			if err := walk(child, branch); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, owners); err != nil {
		return nil, err
	}
	return violations, nil
}

func warn(v Violation) {
	metrics.IncValidatorWarning()
	logging.L().Warn("signal_validation", "kind", kindString(v.Kind), "signal", v.Signal, "other", v.Other)
}

func kindString(k Kind) string {
	if k == KindFit {
		return "fit"
	}
	return "overlap"
}
