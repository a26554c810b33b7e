package progress_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csnight/streetslim/internal/progress"
)

func TestNoopAcceptsAnyFraction(t *testing.T) {
	var s progress.Sink = progress.Noop{}
	require.NotPanics(t, func() {
		s.Report(0)
		s.Report(0.5)
		s.Report(1)
		s.Report(-1)
		s.Report(2)
	})
}
