// Package logging provides a thin helper client for Google Cloud Logging.
//
// Entries are written synchronously with LogSync so that a returned nil means the
// service accepted the entry; nothing is buffered locally. Two ways of writing are
// offered:
//
//   - Client methods (Log, LogEntry and the severity shorthands) for explicit entries
//   - NewHandler and NewLogger, which bridge log/slog records to Cloud Logging
//
// Example usage:
//
//	client, err := logging.New(ctx, auth.FromEnv(), logging.WithLogID("billing"))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	logger := logging.NewLogger(client, os.Stderr)
//	logger.Info("invoice sent", "invoice_id", id)
package logging
