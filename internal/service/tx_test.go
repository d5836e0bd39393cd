package service

import "context"

type testTxRepos struct {
	questionSets   QuestionSetRepositoryInterface
	mcqItems       MCQItemRepositoryInterface
	generationJobs GenerationJobRepositoryInterface
}

func (t *testTxRepos) QuestionSets() QuestionSetRepositoryInterface {
	return t.questionSets
}

func (t *testTxRepos) MCQItems() MCQItemRepositoryInterface {
	return t.mcqItems
}

func (t *testTxRepos) GenerationJobs() GenerationJobRepositoryInterface {
	return t.generationJobs
}

type testTxRunner struct {
	repos  TxRepositories
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	return fn(t.repos)
}
