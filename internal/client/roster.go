package client

// Roster reconciliation. Both operations are pure: they return a new
// Classroom and never mutate the input. Participants are keyed by email,
// which must appear at most once across the two partitions combined.

// rosterContains reports whether any partition already holds the email.
func rosterContains(c *Classroom, email string) bool {
	for _, p := range c.TeacherParticipants {
		if p.Email == email {
			return true
		}
	}
	for _, p := range c.StudentParticipants {
		if p.Email == email {
			return true
		}
	}
	return false
}

// ApplyJoined appends p to the partition matching its role. Duplicate
// delivery is a no-op: if the email is already present anywhere, the
// classroom is returned unchanged.
func ApplyJoined(c *Classroom, p Participant) *Classroom {
	if c == nil {
		return nil
	}
	if rosterContains(c, p.Email) {
		return c
	}
	next := c.Clone()
	if p.Role == RoleTeacher {
		next.TeacherParticipants = append(next.TeacherParticipants, p)
	} else {
		next.StudentParticipants = append(next.StudentParticipants, p)
	}
	return next
}

// ApplyLeft removes the participant with p's email from the partition
// matching its role. Removing an absent participant is a no-op.
func ApplyLeft(c *Classroom, p Participant) *Classroom {
	if c == nil {
		return nil
	}
	next := c.Clone()
	if p.Role == RoleTeacher {
		next.TeacherParticipants = removeByEmail(next.TeacherParticipants, p.Email)
	} else {
		next.StudentParticipants = removeByEmail(next.StudentParticipants, p.Email)
	}
	return next
}

func removeByEmail(list []Participant, email string) []Participant {
	out := list[:0]
	for _, p := range list {
		if p.Email != email {
			out = append(out, p)
		}
	}
	return out
}
