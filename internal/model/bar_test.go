package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestSnapshot_MarshalEchoesInputColumns(t *testing.T) {
	rsi := 55.5
	snap := Snapshot{
		Bar: Bar{
			Open: 1, High: 2, Low: 0.5, Close: 1.5,
			Columns: map[string]json.RawMessage{
				"open":   json.RawMessage(`1`),
				"high":   json.RawMessage(`2`),
				"low":    json.RawMessage(`0.5`),
				"close":  json.RawMessage(`1.5`),
				"symbol": json.RawMessage(`"EURUSD"`),
				"time":   json.RawMessage(`1700000000`),
				"volume": json.RawMessage(`0`),
				"rsi":    json.RawMessage(`"client value"`),
			},
		},
		RSI:        &rsi,
		SellSignal: true,
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"symbol": "EURUSD", "time": 1700000000.0, "volume": 0.0,
		"open": 1.0, "high": 2.0, "low": 0.5, "close": 1.5,
		"rsi": 55.5, "support": nil, "resistance": nil, "moving_average": nil,
		"manipulation": 0.0, "buy_signal": false, "sell_signal": true,
	}
	if len(got) != len(want) {
		t.Errorf("got %d columns, want %d: %s", len(got), len(want), raw)
	}
	for k, v := range want {
		gv, ok := got[k]
		if !ok || gv != v {
			t.Errorf("%s = %v (present=%v), want %v", k, gv, ok, v)
		}
	}
}

func TestSnapshot_MarshalWithoutColumns(t *testing.T) {
	raw, err := json.Marshal(Snapshot{Bar: Bar{Open: 1, High: 2, Low: 0.5, Close: 1.5}})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	json.Unmarshal(raw, &got)
	if got["close"] != 1.5 || got["support"] != nil || len(got) != 11 {
		t.Errorf("unexpected output: %s", raw)
	}
}

func TestDefined(t *testing.T) {
	if Defined(math.NaN()) != nil || Defined(math.Inf(1)) != nil {
		t.Error("NaN and Inf must be undefined")
	}
	if v := Defined(2.5); v == nil || *v != 2.5 {
		t.Errorf("Defined(2.5) = %v", v)
	}
}
