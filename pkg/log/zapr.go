package log

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// NewZapr returns the production logger of the fetcher: JSON output through
// zap, sampled after the first entry of each second.
func NewZapr() (logr.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Sampling = &zap.SamplingConfig{
		Initial:    1,
		Thereafter: 5,
	}
	zapLggr, err := zapCfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zapLggr), nil
}
