package watcher

// RebuildPlan says which diagrams a batch of changes invalidates.
type RebuildPlan struct {
	ReloadConfig bool     // config file changed; settings must be reloaded first
	RebuildAll   bool     // every diagram must be rebuilt
	Definitions  []string // definition files to reload and rebuild
}

// Empty reports whether nothing needs to happen.
func (p *RebuildPlan) Empty() bool {
	return !p.ReloadConfig && !p.RebuildAll && len(p.Definitions) == 0
}

// Plan folds a batch of change events into one rebuild plan. Config and icon
// changes affect every diagram; a definition change only affects the
// diagrams declared in that file.
func Plan(events ...ChangeEvent) *RebuildPlan {
	plan := &RebuildPlan{}
	seen := make(map[string]bool)
	for _, event := range events {
		switch event.Type {
		case ChangeTypeConfig:
			plan.ReloadConfig = true
			plan.RebuildAll = true
		case ChangeTypeIcon:
			plan.RebuildAll = true
		case ChangeTypeDefinition:
			for _, p := range event.Paths {
				if !seen[p] {
					seen[p] = true
					plan.Definitions = append(plan.Definitions, p)
				}
			}
		}
	}
	return plan
}
