package suite

import "fmt"

// orderScenarios sorts the scenarios of class so that every scenario comes
// after its dependencies. Scenarios without ordering constraints keep their
// declaration order.
func orderScenarios(class *Class) ([]Scenario, error) {
	index := make(map[string]int, len(class.Scenarios))
	for i, s := range class.Scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("class %s: scenario %d has no name", class.Name, i)
		}
		if _, dup := index[s.Name]; dup {
			return nil, fmt.Errorf("class %s: duplicate scenario %s", class.Name, s.Name)
		}
		index[s.Name] = i
	}
	for _, s := range class.Scenarios {
		for _, dep := range s.DependsOn {
			if _, ok := index[dep]; !ok {
				return nil, fmt.Errorf("class %s: scenario %s depends on unknown scenario %s", class.Name, s.Name, dep)
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(class.Scenarios))
	ordered := make([]Scenario, 0, len(class.Scenarios))
	var visit func(i int, path []string) error
	visit = func(i int, path []string) error {
		s := class.Scenarios[i]
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("class %s: dependency cycle %v", class.Name, append(path, s.Name))
		}
		state[i] = visiting
		for _, dep := range s.DependsOn {
			if err := visit(index[dep], append(path, s.Name)); err != nil {
				return err
			}
		}
		state[i] = done
		ordered = append(ordered, s)
		return nil
	}
	for i := range class.Scenarios {
		if err := visit(i, nil); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
