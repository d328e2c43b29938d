// Package runtime wires configuration and on-disk layout into a single
// krati instance: it knows where a named store, a named retention, and a
// source's watermark file live under one data directory, and opens each on
// request.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: cfg.DataDir, Config: cfg})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
//
//	st, _ := runtime.OpenStore[string](rt, "orders", codec.UTF8Codec{})
//	log, _ := rt.OpenRetention(retention.Config{ID: "orders", BatchSize: 1000,
//	    Policy: retention.RetentionPolicyOnSize(64), Sources: []string{"orders"}})
//	wm, _ := rt.OpenWatermarks("orders", []string{"orders"})
//	w := retention.NewWriter[string]("orders", log, st, wm, codec.UTF8Codec{})
package runtime
