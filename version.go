package workerruntime

// Version is the release version of the worker runtime library.
const Version = "0.1.0"
