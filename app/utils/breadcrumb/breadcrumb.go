package breadcrumb

import (
	"net/url"

	"github.com/arterio/storefront/app/models"
)

type Breadcrumb struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func Home() []Breadcrumb {
	return []Breadcrumb{{Name: "Início", URL: "/"}}
}

func Products() []Breadcrumb {
	return append(Home(), Breadcrumb{Name: "Produtos", URL: "/produtos"})
}

// ForProduct is Início > Produtos > category > product.
func ForProduct(p models.Product) []Breadcrumb {
	trail := Products()
	if p.Category != "" {
		trail = append(trail, Breadcrumb{
			Name: p.Category,
			URL:  "/produtos?categoria=" + url.QueryEscape(p.Category),
		})
	}
	return append(trail, Breadcrumb{Name: p.Name, URL: "/produto/" + p.Slug})
}

func Cart() []Breadcrumb {
	return append(Home(), Breadcrumb{Name: "Carrinho", URL: "/carrinho"})
}
