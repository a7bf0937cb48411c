package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/mmeshcher/fastgo-client/internal/api"
	"github.com/mmeshcher/fastgo-client/internal/cart"
	"github.com/mmeshcher/fastgo-client/internal/model"
	"github.com/mmeshcher/fastgo-client/internal/ordering"
	"github.com/mmeshcher/fastgo-client/internal/service"
)

// Центр Лечче: точка по умолчанию для поиска и проверки адреса.
const (
	defaultLatitude  = 40.35344
	defaultLongitude = 18.17197
)

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *password == "" {
		return errors.New("-u and -p are required")
	}

	user, err := a.svc.Login(ctx, *username, *password)
	if err != nil {
		var rejected *api.RejectedError
		if errors.As(err, &rejected) {
			return fmt.Errorf("login failed: %s", rejected.Message)
		}
		return err
	}

	fmt.Printf("Logged in as %s (%s)\n", user.Name, user.ID)
	return nil
}

func (a *app) logout() error {
	if err := a.svc.Logout(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	var p model.RegistrationProfile
	fs.StringVar(&p.Name, "name", "", "first name")
	fs.StringVar(&p.LastName, "lastname", "", "last name")
	fs.StringVar(&p.Username, "u", "", "username")
	fs.StringVar(&p.Email, "email", "", "email")
	fs.StringVar(&p.Password, "p", "", "password")
	fs.StringVar(&p.ConfirmPassword, "confirm", "", "password confirmation")
	fs.StringVar(&p.PictureURL, "picture", "", "profile picture URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.svc.Register(ctx, p); err != nil {
		return err
	}
	fmt.Println("Registration completed, you can now log in")
	return nil
}

func coordinateFlags(fs *flag.FlagSet) (*float64, *float64) {
	lat := fs.Float64("lat", defaultLatitude, "latitude of the pinned location")
	lon := fs.Float64("lon", defaultLongitude, "longitude of the pinned location")
	return lat, lon
}

func (a *app) nearby(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("nearby", flag.ContinueOnError)
	lat, lon := coordinateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	restaurants := a.svc.NearbyRestaurants(ctx, model.Coordinates{Latitude: *lat, Longitude: *lon})
	if len(restaurants) == 0 {
		fmt.Println("No restaurants found nearby")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tADDRESS\tCITY")
	for _, r := range restaurants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Address, r.City)
	}
	return w.Flush()
}

func (a *app) menu(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("menu", flag.ContinueOnError)
	shop := fs.String("shop", "", "restaurant id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *shop == "" {
		return errors.New("-shop is required")
	}

	items := a.svc.Menu(ctx, *shop)
	if len(items) == 0 {
		fmt.Println("Menu is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tNAME\tCATEGORY\tPRICE")
	for i, item := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t€ %.2f\n", i, item.Name, item.Category, item.Price)
	}
	return w.Flush()
}

func (a *app) order(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("order", flag.ContinueOnError)
	shop := fs.String("shop", "", "restaurant id")
	items := fs.String("items", "", "comma separated menu positions, repeat a position to add it twice")
	var addr ordering.Address
	fs.StringVar(&addr.Street, "street", "", "delivery street")
	fs.StringVar(&addr.HouseNumber, "number", "", "house number")
	fs.StringVar(&addr.City, "city", "", "delivery city")
	fs.StringVar(&addr.ZipCode, "zip", "", "delivery postal code")
	lat, lon := coordinateFlags(fs)
	confirm := fs.Bool("confirm", false, "submit even if the address is far away or cannot be verified")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *shop == "" || *items == "" {
		return errors.New("-shop and -items are required")
	}

	pinned := model.Coordinates{Latitude: *lat, Longitude: *lon}

	restaurant := a.findRestaurant(ctx, pinned, *shop)
	c, err := a.fillCart(ctx, *shop, *items)
	if err != nil {
		return err
	}

	if addr.Street == "" && addr.City == "" {
		suggested, err := a.svc.SuggestAddress(ctx, pinned)
		if err != nil {
			a.logger.Sugar().Warnw("address autofill failed", "error", err)
		} else {
			addr = suggested
		}
	}

	res, err := a.svc.PlaceOrder(ctx, service.PlaceOrderRequest{
		Restaurant: restaurant,
		Pinned:     pinned,
		Address:    addr,
		Cart:       c,
		Confirm:    *confirm,
	})
	if err != nil {
		return err
	}

	switch {
	case res.Submitted:
		fmt.Printf("Order sent to %s, total € %.2f\n", restaurant.Name, res.Order.TotalPrice)
	case res.Check.Verdict == ordering.VerdictTooFar:
		fmt.Printf("The address is %.1f km from your location. Edit it or re-run with -confirm.\n", res.Check.DistanceKm)
	case res.Check.Verdict == ordering.VerdictUnverified:
		fmt.Println("The address could not be found on the map. Check it or re-run with -confirm.")
	}
	return nil
}

func (a *app) findRestaurant(ctx context.Context, at model.Coordinates, shopID string) model.Restaurant {
	for _, r := range a.svc.NearbyRestaurants(ctx, at) {
		if r.ID == shopID {
			return r
		}
	}
	return model.Restaurant{ID: shopID}
}

func (a *app) fillCart(ctx context.Context, shopID, positions string) (*cart.Cart, error) {
	menu := a.svc.Menu(ctx, shopID)
	c := cart.New()
	for _, raw := range strings.Split(positions, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 0 || idx >= len(menu) {
			return nil, fmt.Errorf("invalid menu position %q", raw)
		}
		c.Add(menu[idx])
	}
	return c, nil
}
