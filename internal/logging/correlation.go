package logging

import "github.com/google/uuid"

// GenerateCorrelationID returns a unique opaque token used to stitch
// events from one component across to another for a single batch run.
func GenerateCorrelationID() string {
	return uuid.NewString()
}
