package saidnumber

// Result is the flat outcome of Validate. It serialises as
//
//	{"valid":true,"dateOfBirth":"1971-05-14","gender":"Male","citizenship":"Citizen"}
//
// or
//
//	{"valid":false,"error":"InvalidChecksum"}
type Result struct {
	Valid       bool        `json:"valid"`
	Error       ErrorKind   `json:"error,omitempty"`
	DateOfBirth *Date       `json:"dateOfBirth,omitempty"`
	Gender      Gender      `json:"gender,omitempty"`
	Citizenship Citizenship `json:"citizenship,omitempty"`
}

// ResultOf describes a parsed identity as a successful Result.
func ResultOf(id Identity) Result {
	dob := id.dateOfBirth
	return Result{
		Valid:       true,
		DateOfBirth: &dob,
		Gender:      id.gender,
		Citizenship: id.citizenship,
	}
}

func failure(kind ErrorKind) Result {
	return Result{Valid: false, Error: kind}
}

// Outcome is a single label for metrics and stats: "valid" or the error kind.
func (r Result) Outcome() string {
	if r.Valid {
		return "valid"
	}
	return string(r.Error)
}
