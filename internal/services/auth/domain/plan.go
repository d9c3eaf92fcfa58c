package domain

// Plan bounds what an account may create.
type Plan struct {
	// MaxProjects caps concurrent projects; zero means unlimited.
	MaxProjects int
	// MaxGenerationsPerMonth caps post generations per calendar month; zero means unlimited.
	MaxGenerationsPerMonth int
}

// FreePlan is the default allowance for new accounts.
var FreePlan = Plan{MaxProjects: 1, MaxGenerationsPerMonth: 5}

// SubscribedPlan is the allowance for paying accounts.
var SubscribedPlan = Plan{MaxProjects: 10, MaxGenerationsPerMonth: 100}

// PlanFor returns the plan matching an account's lifecycle state.
func PlanFor(state State) Plan {
	if state == StateSubscribed {
		return SubscribedPlan
	}
	return FreePlan
}

// AllowsProject reports whether the plan permits another project.
func (p Plan) AllowsProject(currentCount int) bool {
	return p.MaxProjects <= 0 || currentCount < p.MaxProjects
}

// AllowsGeneration reports whether the plan permits another generation this month.
func (p Plan) AllowsGeneration(currentMonthCount int) bool {
	return p.MaxGenerationsPerMonth <= 0 || currentMonthCount < p.MaxGenerationsPerMonth
}
