// Package versioning defines workflow versions and task queue names.
package versioning

const (
	// Workflow versions for determinism tracking.
	SanityCheckV1 = "sanity-check-v1"

	// Task queues. QueueCheck talks to the forms platform only; QueuePublish
	// holds the AWS credentials used to publish results.
	QueueCheck   = "parity-check"
	QueuePublish = "parity-publish"
)
