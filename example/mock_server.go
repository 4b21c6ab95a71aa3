package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
)

// StartMockFVEServer runs a mock monitoring endpoint that answers like the
// real FVE monitor: it checks the c_monitor/t_monitor parameters and returns
// the full telemetry document with slightly varying readings.
// Call this in a goroutine before creating the monitor.
func StartMockFVEServer(addr, clientID, token string) {
	http.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("c_monitor") != clientID {
			http.Error(w, "unknown client", http.StatusForbidden)
			return
		}
		if q.Get("t_monitor") != token {
			// the real endpoint reports a bad token as a bare boolean
			_, _ = w.Write([]byte("false"))
			return
		}

		jitter := func(base, spread float64) float64 {
			return base + (rand.Float64()-0.5)*spread
		}

		doc := map[string]any{
			"jmeno":           "Demo FVE",
			"posledniZaznam":  "2026-08-26 12:00:00",
			"castDne":         "den",
			"wifiProc":        92,
			"spotrebaCelkem":  jitter(1500, 400),
			"vykonSit":        jitter(-300, 200),
			"vykonFV":         jitter(1800, 600),
			"vykonBat":        jitter(0, 300),
			"teplotaStridace": jitter(42, 4),
			"baterie": map[string]any{
				"soc":    jitter(87, 6),
				"napeti": jitter(51.2, 0.8),
				"proud":  jitter(-2.4, 3),
			},
			"statistika": map[string]any{
				"denni": map[string]any{
					"NakupEnergie":  jitter(1.8, 0.2),
					"NabitiBaterie": jitter(4.1, 0.3),
					"VybitiBaterie": jitter(3.6, 0.3),
				},
			},
			"nabijecka": map[string]any{
				"nabijecka2": map[string]any{
					"stavKonektoru": "disconnected",
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	})

	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("mock server failed", "error", err)
	}
}
