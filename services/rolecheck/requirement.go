package rolecheck

import "strings"

// RoleRequirement declares which credential checks an operation demands.
// It is a plain value: copies handed to a route cannot be changed by callers.
type RoleRequirement struct {
	Admin           bool
	Consumer        bool
	ConsumerIDMatch bool
}

// Admin requires valid administrator Basic credentials.
func Admin() RoleRequirement {
	return RoleRequirement{Admin: true}
}

// Consumer requires a client certificate belonging to any registered consumer.
func Consumer() RoleRequirement {
	return RoleRequirement{Consumer: true}
}

// ConsumerWithIDMatch requires a registered consumer whose certificate CN
// equals one of the call's positional arguments.
func ConsumerWithIDMatch() RoleRequirement {
	return RoleRequirement{ConsumerIDMatch: true}
}

// AdminOrConsumer accepts either an administrator or any registered consumer.
func AdminOrConsumer() RoleRequirement {
	return RoleRequirement{Admin: true, Consumer: true}
}

// AdminOrConsumerWithIDMatch accepts an administrator, or the consumer the
// call is about.
func AdminOrConsumerWithIDMatch() RoleRequirement {
	return RoleRequirement{Admin: true, ConsumerIDMatch: true}
}

// checksConsumer reports whether the certificate validator runs.
func (r RoleRequirement) checksConsumer() bool {
	return r.Consumer || r.ConsumerIDMatch
}

// String renders the set flags joined by "+", or "none". Used as a log field
// and metric label.
func (r RoleRequirement) String() string {
	parts := make([]string, 0, 3)
	if r.Admin {
		parts = append(parts, "admin")
	}
	if r.Consumer {
		parts = append(parts, "consumer")
	}
	if r.ConsumerIDMatch {
		parts = append(parts, "consumer_id_match")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Decision is the per-call outcome of both credential checks.
type Decision struct {
	AdminGranted    bool
	ConsumerGranted bool
}

// Allowed reports whether either check granted access.
func (d Decision) Allowed() bool {
	return d.AdminGranted || d.ConsumerGranted
}
