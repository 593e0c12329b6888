package domain

// Order status lifecycle:
//
//	belum_bayar -> dikirim -> selesai
//	dibatalkan reachable from any non-terminal state
//
// selesai and dibatalkan are terminal.
type Status string

const (
	StatusBelumBayar Status = "belum_bayar" // awaiting payment
	StatusDikirim    Status = "dikirim"     // shipped
	StatusSelesai    Status = "selesai"     // completed
	StatusDibatalkan Status = "dibatalkan"  // cancelled
)

func (s Status) Valid() bool {
	switch s {
	case StatusBelumBayar, StatusDikirim, StatusSelesai, StatusDibatalkan:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusSelesai || s == StatusDibatalkan
}

// CanTransition reports whether the move from s to next is allowed.
func (s Status) CanTransition(next Status) bool {
	if !next.Valid() || s.Terminal() {
		return false
	}
	if next == StatusDibatalkan {
		return true
	}
	switch s {
	case StatusBelumBayar:
		return next == StatusDikirim
	case StatusDikirim:
		return next == StatusSelesai
	}
	return false
}
