package demo

import (
	"github.com/graphql-go/graphql"

	"github.com/ssrkit/ssrkit"
)

var messageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Message",
	Fields: graphql.Fields{
		"text": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"from": &graphql.Field{Type: graphql.String},
	},
})

// Message is a value of the Message type.
type Message struct {
	Text string `json:"text"`
	From string `json:"from,omitempty"`
}

// Schema returns the demo GraphQL schema. The message greets the visitor
// named by the "name" cookie, when the request carries one.
func Schema() graphql.Schema {
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"message": &graphql.Field{
					Type: graphql.NewNonNull(messageType),
					Args: graphql.FieldConfigArgument{
						"greeting": &graphql.ArgumentConfig{
							Type:         graphql.String,
							DefaultValue: "Hello",
						},
					},
					Resolve: resolveMessage,
				},
			},
		}),
	})
	if err != nil {
		panic(err)
	}
	return schema
}

func resolveMessage(p graphql.ResolveParams) (any, error) {
	greeting, _ := p.Args["greeting"].(string)
	name := "world"
	if c, err := ssrkit.FromContext(p.Context); err == nil {
		if cookie, err := c.Cookie("name"); err == nil && cookie.Value != "" {
			name = cookie.Value
		}
	}
	return Message{Text: greeting + ", " + name + "!", From: "ssrkit"}, nil
}
