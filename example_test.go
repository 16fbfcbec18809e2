package bitcalc_test

import (
	"fmt"

	"github.com/zephyrtronium/bitcalc"
)

func Example() {
	p, err := bitcalc.Parse(`
		'''Binary literals, left to right.'''
		x = 1.1;
		x * 10;
		1/0;
	`)
	if err != nil {
		panic(err)
	}
	fmt.Println(bitcalc.Render(p, bitcalc.Calculator))
	// Output:
	// > 1.5
	// > 3
	// > error: division by zero in 1 / 0
}

func ExampleRender_parseTree() {
	p, _ := bitcalc.Parse("-.1;")
	fmt.Println(bitcalc.Render(p, bitcalc.ParseTree))
	// Output:
	// {
	//    "type": "program",
	//    "expressions": [
	//       {
	//          "type": "expression",
	//          "S": {
	//             "type": "S",
	//             "F": {
	//                "type": "F",
	//                "E": {
	//                   "type": "E",
	//                   "N": {
	//                      "type": "N",
	//                      "int": "",
	//                      "decimal": "1",
	//                      "negative": true
	//                   }
	//                }
	//             }
	//          }
	//       }
	//    ]
	// }
}

func ExampleContext_Clone() {
	ctx := bitcalc.NewContext()
	p, _ := bitcalc.Parse("r = 1/11;")
	ctx.Eval(p)
	q, _ := bitcalc.Parse("r;")
	fmt.Println(bitcalc.RenderResults(ctx.Clone().Eval(q)))
	fmt.Println(bitcalc.RenderResults(ctx.Clone(bitcalc.Prec(10)).Eval(q)))
	fmt.Println(bitcalc.RenderResults(ctx.Clone(bitcalc.WithBackend(bitcalc.Float64())).Eval(q)))
	// Output:
	// > 0.333333333333333333333333333333333333333
	// > 0.3333
	// > error: undefined variable: "r"
}
