package logger

// Component-specific logger functions

// Schema returns a logger for schema bootstrap operations
func Schema() Logger {
	return WithField("component", "schema")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}

// DB returns a logger for connection management
func DB() Logger {
	return WithField("component", "db")
}

// ORM returns a logger for statements issued through repositories
func ORM() Logger {
	return WithField("component", "orm")
}

// Worker returns a logger for scheduled maintenance jobs
func Worker() Logger {
	return WithField("component", "worker")
}

// Metrics returns a logger for the metrics listener
func Metrics() Logger {
	return WithField("component", "metrics")
}
