package opt_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tomasim/core/opt"
)

func TestOpt(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Opt Suite")
}

var _ = Describe("Value", func() {
	It("is absent by default", func() {
		var v opt.Value[int]
		Expect(v.IsPresent()).To(BeFalse())
		_, ok := v.Get()
		Expect(ok).To(BeFalse())
	})

	It("holds a value when constructed with Of", func() {
		v := opt.Of(42)
		Expect(v.IsPresent()).To(BeTrue())
		got, ok := v.Get()
		Expect(ok).To(BeTrue())
		Expect(got).To(Equal(42))
	})

	It("clears back to absent", func() {
		v := opt.Of(7)
		v.Clear()
		Expect(v.IsPresent()).To(BeFalse())
	})

	It("OrElse falls back when absent", func() {
		v := opt.None[int]()
		Expect(v.OrElse(9)).To(Equal(9))
	})

	It("MustGet panics when absent", func() {
		v := opt.None[int]()
		Expect(func() { v.MustGet() }).To(Panic())
	})
})
