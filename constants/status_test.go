package constants

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to DocStatus }{
		{DocStatusProcessing, DocStatusCompleted},
		{DocStatusProcessing, DocStatusFailed},
		{DocStatusCompleted, DocStatusApproved},
		{DocStatusCompleted, DocStatusRejected},
	}
	for _, tt := range allowed {
		if !CanTransition(tt.from, tt.to) {
			t.Errorf("CanTransition(%s, %s) = false, want true", tt.from, tt.to)
		}
	}

	denied := []struct{ from, to DocStatus }{
		{DocStatusProcessing, DocStatusApproved},
		{DocStatusCompleted, DocStatusProcessing},
		{DocStatusFailed, DocStatusCompleted},
		{DocStatusApproved, DocStatusRejected},
		{DocStatusRejected, DocStatusApproved},
		{DocStatusApproved, DocStatusProcessing},
	}
	for _, tt := range denied {
		if CanTransition(tt.from, tt.to) {
			t.Errorf("CanTransition(%s, %s) = true, want false", tt.from, tt.to)
		}
	}
}

func TestReprocessable(t *testing.T) {
	if !Reprocessable(DocStatusProcessing) {
		t.Error("processing must be reprocessable")
	}
	for _, s := range []DocStatus{DocStatusCompleted, DocStatusFailed, DocStatusApproved, DocStatusRejected} {
		if Reprocessable(s) {
			t.Errorf("%s must not be reprocessable", s)
		}
	}
}
