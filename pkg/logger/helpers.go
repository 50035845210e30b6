package logger

import "time"

// LogRequest logs HTTP request information at a level matching the status.
func LogRequest(method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		GetLogger().ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		GetLogger().WarnWithFields("HTTP request client error", fields)
	default:
		GetLogger().DebugWithFields("HTTP request completed", fields)
	}
}

// LogDownload logs an image download outcome for a pipeline.
func LogDownload(source, filename string, success bool, err error) {
	log := GetLogger().WithFields(map[string]interface{}{
		"source":   source,
		"filename": filename,
		"success":  success,
	})

	if err != nil {
		log.WithError(err).Error("Download failed")
	} else if success {
		log.Info("Download completed")
	} else {
		log.Debug("Download skipped")
	}
}

// LogSyncRun logs the completion of one pipeline run. Skipped counts work
// avoided by existence checks and incremental count comparisons.
func LogSyncRun(source string, items, skipped int, duration time.Duration, err error) {
	fields := map[string]interface{}{
		"source":      source,
		"items":       items,
		"skipped":     skipped,
		"duration_ms": duration.Milliseconds(),
	}

	if err != nil {
		GetLogger().WithError(err).WithFields(fields).Error("Sync run failed")
		return
	}
	GetLogger().InfoWithFields("Sync run completed", fields)
}
