package sarima

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// state is the serialized form of a fitted model: coefficients plus the
// history the forecast recursion needs.
type state struct {
	Order      Order      `json:"order"`
	AR         []float64  `json:"ar"`
	MA         []float64  `json:"ma"`
	SAR        []float64  `json:"sar"`
	SMA        []float64  `json:"sma"`
	ARStdErr   []*float64 `json:"ar_stderr"`
	MAStdErr   []*float64 `json:"ma_stderr"`
	SARStdErr  []*float64 `json:"sar_stderr"`
	SMAStdErr  []*float64 `json:"sma_stderr"`
	Intercept  float64    `json:"intercept"`
	HasMean    bool       `json:"has_mean"`
	ExogNames  []string   `json:"exog_names,omitempty"`
	ExogCoeffs []float64  `json:"exog_coeffs,omitempty"`
	Variance   float64    `json:"sigma2"`
	LogLik     float64    `json:"loglik"`
	AIC        float64    `json:"aic"`
	AICc       *float64   `json:"aicc"`
	BIC        float64    `json:"bic"`
	NObs       int        `json:"nobs"`
	NEff       int        `json:"neff"`
	Start      int        `json:"start"`
	Data       []float64  `json:"data"`
	Residuals  []float64  `json:"residuals"`
}

// MarshalJSON encodes a fitted model.
func (m *Model) MarshalJSON() ([]byte, error) {
	if !m.fitted {
		return nil, errors.New("cannot serialize an unfitted model")
	}
	return json.Marshal(state{
		Order:      m.Order,
		AR:         m.ARCoeffs,
		MA:         m.MACoeffs,
		SAR:        m.SARCoeffs,
		SMA:        m.SMACoeffs,
		ARStdErr:   nanToNull(m.ARStdErrors),
		MAStdErr:   nanToNull(m.MAStdErrors),
		SARStdErr:  nanToNull(m.SARStdErrors),
		SMAStdErr:  nanToNull(m.SMAStdErrors),
		Intercept:  m.Intercept,
		HasMean:    m.HasMean,
		ExogNames:  m.ExogNames,
		ExogCoeffs: m.ExogCoeffs,
		Variance:   m.Variance,
		LogLik:     m.LogLik,
		AIC:        m.AIC,
		AICc:       finite(m.AICc),
		BIC:        m.BIC,
		NObs:       m.NObs,
		NEff:       m.NEff,
		Start:      m.start,
		Data:       m.data,
		Residuals:  m.residuals,
	})
}

// UnmarshalJSON restores a model written by MarshalJSON. The restored
// model forecasts exactly like the original.
func (m *Model) UnmarshalJSON(b []byte) error {
	var s state
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if err := s.Order.Validate(); err != nil {
		return err
	}
	o := s.Order
	if len(s.AR) != o.P || len(s.MA) != o.Q || len(s.SAR) != o.SP || len(s.SMA) != o.SQ {
		return fmt.Errorf("serialized coefficients do not match order %s", o)
	}
	diff := applyPoly(differencingPoly(o), s.Data)
	if len(diff) != len(s.Residuals) {
		return fmt.Errorf("serialized model has %d residuals for %d differenced observations",
			len(s.Residuals), len(diff))
	}

	aicc := math.Inf(1)
	if s.AICc != nil {
		aicc = *s.AICc
	}

	*m = Model{
		Order:        o,
		ARCoeffs:     s.AR,
		MACoeffs:     s.MA,
		SARCoeffs:    s.SAR,
		SMACoeffs:    s.SMA,
		ARStdErrors:  nullToNaN(s.ARStdErr, o.P),
		MAStdErrors:  nullToNaN(s.MAStdErr, o.Q),
		SARStdErrors: nullToNaN(s.SARStdErr, o.SP),
		SMAStdErrors: nullToNaN(s.SMAStdErr, o.SQ),
		Intercept:    s.Intercept,
		HasMean:      s.HasMean,
		ExogNames:    s.ExogNames,
		ExogCoeffs:   s.ExogCoeffs,
		Variance:     s.Variance,
		LogLik:       s.LogLik,
		AIC:          s.AIC,
		AICc:         aicc,
		BIC:          s.BIC,
		NObs:         s.NObs,
		NEff:         s.NEff,
		fitted:       true,
		start:        s.Start,
		data:         s.Data,
		diffData:     diff,
		residuals:    s.Residuals,
	}
	return nil
}

// JSON cannot carry NaN or Inf, so such values travel as null.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nanToNull(xs []float64) []*float64 {
	out := make([]*float64, len(xs))
	for i, v := range xs {
		out[i] = finite(v)
	}
	return out
}

func nullToNaN(xs []*float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
		if i < len(xs) && xs[i] != nil {
			out[i] = *xs[i]
		}
	}
	return out
}
