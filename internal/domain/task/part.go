package task

const (
	PartTaskType      = "PartTask"
	PartRetryTaskType = "PartRetryTask"
)

type PartTask struct {
	PartNumber string `json:"part_number"` // PartSelect number, e.g. PS11752778
	Force      bool   `json:"force"`       // Bypass the record cache
}

func (t *PartTask) TaskType() string {
	return PartTaskType
}

func (t *PartTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

type PartRetryTask struct {
	PartNumber string `json:"part_number"`
	RetryCount int    `json:"retry_count"` // Number of times this part has been retried
	Error      string `json:"error"`       // Error message from the last failure
}

func (t *PartRetryTask) TaskType() string {
	return PartRetryTaskType
}

func (t *PartRetryTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}

// TaskTypes lists every stream the queue has to provision
var TaskTypes = []string{
	PartTaskType,
	PartRetryTaskType,
}
