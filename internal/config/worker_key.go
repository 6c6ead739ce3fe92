package config

type WorkerKeyStruct struct {
	PersistAnswersQueue  string
	EvaluateResultsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistAnswersQueue:  "persist_answers_queue",
	EvaluateResultsQueue: "evaluate_results_queue",
}
