package specstore

// cloneSpecification deep-copies spec so a mutation can be applied to
// the copy and discarded on a persist failure without ever touching
// the live object other readers may be holding a pointer to.
func cloneSpecification(spec *Specification) *Specification {
	clone := *spec
	clone.Metadata = cloneMetadata(spec.Metadata)
	clone.Stories = cloneStories(spec.Stories)
	clone.Design = cloneDesign(spec.Design)
	clone.Tasks = cloneTasks(spec.Tasks)
	clone.DetectedStack = append([]string(nil), spec.DetectedStack...)
	return &clone
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStories(stories []*UserStory) []*UserStory {
	if stories == nil {
		return nil
	}
	out := make([]*UserStory, len(stories))
	for i, story := range stories {
		s := *story
		s.Requirements = append([]EARSRequirement(nil), story.Requirements...)
		out[i] = &s
	}
	return out
}

func cloneDesign(d Design) Design {
	out := d
	out.Components = append([]string(nil), d.Components...)
	out.SequenceDiagrams = append([]string(nil), d.SequenceDiagrams...)
	return out
}

func cloneTasks(tasks []*Task) []*Task {
	if tasks == nil {
		return nil
	}
	out := make([]*Task, len(tasks))
	for i, t := range tasks {
		c := *t
		c.Dependencies = append([]string(nil), t.Dependencies...)
		c.RequirementIDs = append([]string(nil), t.RequirementIDs...)
		c.Subtasks = cloneTasks(t.Subtasks)
		out[i] = &c
	}
	return out
}
