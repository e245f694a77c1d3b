package telegram

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"vector-area/internal/domain/entity"
)

func TestResultText(t *testing.T) {
	text := ResultText(&entity.Measurement{
		AreaCM2:     0.25,
		BlackPixels: 2500,
		Width:       100,
		Height:      50,
		Resolution:  254,
	})

	require.Contains(t, text, "0.2500 см²")
	require.Contains(t, text, "2500 из 100×50")
	require.Contains(t, text, "254 DPI")
}

func TestErrorText(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{entity.NewError(entity.KindInvalidInput, "only .ai and .eps files are accepted", nil), "⚠️ only .ai and .eps files are accepted"},
		{entity.NewError(entity.KindInvalidInput, "", nil), msgInvalidInput},
		{errors.Wrap(entity.NewError(entity.KindUnavailable, "converter is not available", nil), "rasterize"), msgUnavailable},
		{entity.NewError(entity.KindConversionFailed, "conversion failed", errors.New("bad eps")), msgConversionFailed},
		{errors.New("boom"), msgInternalError},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, ErrorText(tc.err))
	}
}
