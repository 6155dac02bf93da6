package ledger

import "errors"

var (
	ErrInvalidTotal        = errors.New("split total must be positive")
	ErrInvalidParticipants = errors.New("participant count must be positive")
)

// SplitShares divides total among n participants so the shares sum exactly
// to total. Each participant gets the floored share; the residual is handed
// out one rupee at a time to the first participants in order, so no share
// differs from another by more than ₹1.
func SplitShares(total int64, n int) ([]int64, error) {
	if total <= 0 {
		return nil, ErrInvalidTotal
	}
	if n <= 0 {
		return nil, ErrInvalidParticipants
	}

	base := total / int64(n)
	residual := total % int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < residual {
			shares[i]++
		}
	}
	return shares, nil
}

// SplitAmongOthers computes the shares owed by the other participants of a
// bill the user paid. The user counts toward the divisor but takes the last
// (never larger) share and gets no obligation record, so only the others'
// shares are returned.
func SplitAmongOthers(total int64, others int) ([]int64, error) {
	shares, err := SplitShares(total, others+1)
	if err != nil {
		return nil, err
	}
	return shares[:others], nil
}
