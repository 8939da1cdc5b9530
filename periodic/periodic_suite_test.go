package periodic_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestPeriodic(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "periodic suite")
}
