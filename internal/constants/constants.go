package constants

const (
	MigrationLock = iota
)

var Locks = []int{
	MigrationLock,
}

const (
	DefaultWorkerCount  = 8
	DefaultLaneCapacity = 1000

	DefaultCorrelationHour      = 2
	DefaultRolloverHour         = 3
	DefaultRolloverFallbackDays = 7

	// Sub-priority used for maintenance jobs so they sort behind everything
	// else queued on the low lane.
	MaintenanceSubPriority = 1

	MaxSubPriority = 10
)
