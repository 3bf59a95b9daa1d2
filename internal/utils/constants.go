package utils

const (
	// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
	LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes the fatal error printed by main.
	ApplicationExecutionFailedMessage = "treecat execution failed"

	// ConfigFileName is the configuration file looked up in the working and global directories.
	ConfigFileName = "treecat.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".treecat"

	// DefaultOutputFileName is the combined output written when no destination is given.
	DefaultOutputFileName = "Output Combined File.txt"
)
