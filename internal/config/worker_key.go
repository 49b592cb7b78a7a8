package config

type WorkerKeyStruct struct {
	SelectionRunsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	SelectionRunsQueue: "persist_selection_runs_queue",
}
