package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued  JobStatus = "QUEUED"  // queued for processing
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusTextOK  JobStatus = "TEXT_OK" // stage 1 completed (document text extracted)
	JobStatusParsed  JobStatus = "PARSED"  // stage 2 completed (heuristic extraction done)
	JobStatusLLMOK   JobStatus = "LLM_OK"  // stage 3 completed (LLM gap-fill applied)
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)
