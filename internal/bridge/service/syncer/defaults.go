package syncer

import "time"

const (
	defaultBatchSize     = 10
	defaultFetchWorkers  = 4
	defaultPollInterval  = 5 * time.Second
	defaultRetryInterval = 5 * time.Second
)
