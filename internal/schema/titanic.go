package schema

// Column names shared with the chart plans.
const (
	ColTicket      = "Ticket"
	ColEmbarked    = "Embarked"
	ColPassengerID = "PassengerId"
	ColAge         = "Age"
	ColSex         = "Sex"
)

func init() {
	Register(Signature{
		Tag:      SchemaA,
		Label:    "Passenger manifest (train.csv)",
		Priority: 10,
		FileName: "train.csv",
		Required: []string{ColTicket, ColEmbarked},
	})
	Register(Signature{
		Tag:      SchemaB,
		Label:    "Passenger ages (test.csv)",
		Priority: 20,
		FileName: "test.csv",
		Required: []string{ColPassengerID, ColAge},
		Optional: []string{ColSex},
	})
}
