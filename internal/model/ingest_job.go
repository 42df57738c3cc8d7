package model

// IngestJob is the queue payload for one deferred ingestion run. The
// upload handler validates and saves the file, then publishes this job;
// the worker owns TempPath from delivery until cleanup.
type IngestJob struct {
	TempPath string `json:"temp_path"`
	UserID   uint   `json:"user_id"`
	FileName string `json:"file_name"`
}
