package constants_test

import (
	"fmt"

	"github.com/ledgerline/mdm/pkg/constants"
)

// Example shows the confidence ladder used by survivorship.
func Example() {
	fmt.Println(constants.OverrideConfidence, constants.CustomRuleConfidence, constants.SingleSourceConfidence)
	fmt.Println(constants.AgreementBaseConfidence + constants.AgreementSpan)
	fmt.Printf("%o\n", constants.FilePermissions)
	// Output:
	// 100 90 85
	// 100
	// 644
}
