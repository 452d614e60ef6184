package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFinancialCommand_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		command FinancialCommand
		wantErr error
	}{
		{
			name: "repayment with payload",
			command: FinancialCommand{
				CommandID: uuid.New(),
				Type:      CommandTypeRepayment,
				Repayment: &RepaymentPayload{LoanID: uuid.New(), SourceAccountID: uuid.New(), Amount: 1000},
			},
		},
		{
			name:    "repayment without payload",
			command: FinancialCommand{CommandID: uuid.New(), Type: CommandTypeRepayment},
			wantErr: ErrMissingPayload,
		},
		{
			name: "transfer with payload",
			command: FinancialCommand{
				CommandID: uuid.New(),
				Type:      CommandTypeTransfer,
				Transfer:  &TransferPayload{FromAccountID: uuid.New(), ToAccountID: uuid.New(), Amount: 500},
			},
		},
		{
			name:    "unknown type",
			command: FinancialCommand{CommandID: uuid.New(), Type: CommandType("SETTLEMENT")},
			wantErr: ErrInvalidCommandType,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.command.Validate()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
