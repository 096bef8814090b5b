// Package webhookrecv runs a small HTTP server that captures the webhook
// deliveries the product sends, so scenarios can assert on them.
//
// Register a hook in the product pointing at <public URL>/hooks/<name> and wait
// for the delivery:
//
//	srv := webhookrecv.New(cfg.Receiver, log)
//	if err := srv.Start(); err != nil {
//		return err
//	}
//	defer srv.Shutdown(context.Background())
//	d, err := srv.WaitForDelivery(ctx, "scan-completed", 5*time.Minute)
package webhookrecv
