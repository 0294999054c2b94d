package pipeline

import "github.com/replenix/replenix/replen"

// Stage is one generation step within a group's task plan.
type Stage string

const (
	StageAnalysis        Stage = "ANALYSIS"
	StagePurchaseRequest Stage = "PURCHASE_REQUEST"
	StageEmail           Stage = "EMAIL"
	StageEvaluation      Stage = "EVALUATION"
)

// PlannedStage is a stage together with the upstream stage it depends on.
// DependsOn is empty for the first stage.
type PlannedStage struct {
	Name      Stage
	DependsOn Stage
}

// GroupTaskPlan is the ordered stage list for one supplier group.
type GroupTaskPlan struct {
	Group  *replen.SupplierGroup
	Stages []PlannedStage
}

// Plan builds the task plan for a group. Stage order is fixed: analysis
// first, then purchase request and email which both depend on analysis
// only and may run concurrently with each other, then an optional
// evaluation stage when the policy enables a post-generation check.
// Plan performs no I/O.
func Plan(group *replen.SupplierGroup, policy replen.Policy) GroupTaskPlan {
	stages := []PlannedStage{
		{Name: StageAnalysis},
		{Name: StagePurchaseRequest, DependsOn: StageAnalysis},
		{Name: StageEmail, DependsOn: StageAnalysis},
	}
	if policy.Evaluation {
		stages = append(stages, PlannedStage{Name: StageEvaluation, DependsOn: StageEmail})
	}
	return GroupTaskPlan{Group: group, Stages: stages}
}

// ConcurrentAfterAnalysis reports whether a stage may be scheduled
// alongside its siblings once analysis has succeeded.
func (s PlannedStage) ConcurrentAfterAnalysis() bool {
	return s.DependsOn == StageAnalysis
}
