package domain

import (
	"database/sql/driver"
	"encoding/json"
)

// Band is one (percent, value) cell of the exit table, already formatted for display.
type Band struct {
	Percent string `json:"percent"`
	Val     string `json:"val"`
}

func (b Band) empty() bool { return b.Percent == "" && b.Val == "" }

type StrategyBands struct {
	Conservative Band `json:"conservative"`
	Moderate     Band `json:"moderate"`
	Optimistic   Band `json:"optimistic"`
}

func (s StrategyBands) empty() bool {
	return s.Conservative.empty() && s.Moderate.empty() && s.Optimistic.empty()
}

// ExitStrategyTable holds the flip (stp), hold (mtp) and compound (ltp) scenarios.
// A non-empty table on a project is authored data and is shown as is.
type ExitStrategyTable struct {
	STP StrategyBands `json:"stp"`
	MTP StrategyBands `json:"mtp"`
	LTP StrategyBands `json:"ltp"`
}

func (t ExitStrategyTable) IsEmpty() bool {
	return t.STP.empty() && t.MTP.empty() && t.LTP.empty()
}

// MarshalJSON writes null for an empty table so clients can tell authored from absent.
func (t ExitStrategyTable) MarshalJSON() ([]byte, error) {
	if t.IsEmpty() {
		return []byte("null"), nil
	}
	type plain ExitStrategyTable
	return json.Marshal(plain(t))
}

func (t *ExitStrategyTable) Scan(value interface{}) error {
	return scanJSON(value, t, "ExitStrategyTable")
}

func (t ExitStrategyTable) Value() (driver.Value, error) {
	if t.IsEmpty() {
		return nil, nil
	}
	type plain ExitStrategyTable
	return jsonValue(plain(t))
}
