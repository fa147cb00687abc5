package state

import "fmt"

// SummaryPolicy controls how Add treats the summary service.
type SummaryPolicy int

const (
	// SummaryRequired aborts the add when the summary cannot be fetched.
	SummaryRequired SummaryPolicy = iota
	// SummaryBestEffort adds with an empty summary when the fetch fails.
	SummaryBestEffort
	// SummarySkip never calls the summary service.
	SummarySkip
)

func (p SummaryPolicy) String() string {
	switch p {
	case SummaryRequired:
		return "required"
	case SummaryBestEffort:
		return "best-effort"
	case SummarySkip:
		return "skip"
	default:
		return fmt.Sprintf("SummaryPolicy(%d)", int(p))
	}
}

// ParseSummaryPolicy parses the String form of a policy.
func ParseSummaryPolicy(s string) (SummaryPolicy, error) {
	switch s {
	case "", "required":
		return SummaryRequired, nil
	case "best-effort":
		return SummaryBestEffort, nil
	case "skip":
		return SummarySkip, nil
	default:
		return SummaryRequired, fmt.Errorf("unknown summary policy %q (want required, best-effort or skip)", s)
	}
}
