package varsel_test

import (
	"context"
	"fmt"

	varsel "github.com/albertocavalcante/go-varsel"
	"github.com/albertocavalcante/go-varsel/attribute"
	"github.com/albertocavalcante/go-varsel/model"
)

func ExampleEngine_Resolve() {
	usage := func(value string) attribute.Set {
		return attribute.FromStrings(map[string]string{"usage": value})
	}
	dep := func(module, version string) model.Dependency {
		return model.Dependency{Module: model.MustModuleID(module), Version: version}
	}
	component := func(id string, deps ...model.Dependency) *model.Component {
		cid := model.MustComponentID(id)
		return &model.Component{ID: cid, Variants: []*model.Variant{
			{Name: "api", Component: cid, Attributes: usage("api")},
			{Name: "runtime", Component: cid, Attributes: usage("runtime"), Dependencies: deps},
		}}
	}

	provider := model.NewMemoryProvider(
		component("org:lib:1.0", dep("org:util", "2.0")),
		component("org:web:2.0", dep("org:util", "1.5")),
		component("org:util:1.5"),
		component("org:util:2.0"),
	)

	engine, err := varsel.New(provider)
	if err != nil {
		panic(err)
	}
	res, err := engine.Resolve(context.Background(), varsel.Root{
		ID:           model.MustComponentID("com.acme:app:1.0"),
		Attributes:   usage("runtime"),
		Dependencies: []model.Dependency{dep("org:lib", "1.0"), dep("org:web", "2.0")},
	})
	if err != nil {
		panic(err)
	}

	for _, s := range res.Selections {
		fmt.Println(s.Component, s.Candidates)
	}
	for _, c := range res.Conflicts {
		fmt.Printf("%s conflict on %s: %s wins\n", c.Kind, c.Subject, c.Winner)
	}
	// Output:
	// org:lib:1.0 [runtime]
	// org:util:2.0 [runtime]
	// org:web:2.0 [runtime]
	// module conflict on org:util: org:util:2.0 wins
}
