package config

// QueueDriver selects the queue fabric implementation.
type QueueDriver int

const (
	// Memory runs the bounded in-process fabric. Single worker process only.
	Memory QueueDriver = iota
	// RabbitMQ runs the AMQP fabric shared by many worker processes.
	RabbitMQ
)

func (d QueueDriver) String() string {
	switch d {
	case Memory:
		return "memory"
	case RabbitMQ:
		return "rabbitmq"
	default:
		return "unknown"
	}
}
