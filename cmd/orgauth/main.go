package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

// call ejecuta el request y falla si el status no es 2xx.
func (c *client) call(name, method, path string, payload any) error {
	status, body, err := c.do(method, path, payload)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("%s fallo: status=%d body=%s", name, status, strings.TrimSpace(string(body)))
	}
	c.print(status, body)
	return nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(bytes.TrimSpace(body)) > 0 {
		fmt.Println(strings.TrimSpace(string(body)))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("ORGAUTH_URL", "http://localhost:8080")
		token   = envOr("ORGAUTH_TOKEN", "")
		out     = envOr("ORGAUTH_OUT", "text")
		timeout = 30 * time.Second
	)
	cl := &client{HTTP: &http.Client{Timeout: timeout}}

	requireToken := func(cmd *cobra.Command, args []string) error {
		if cl.Token == "" {
			return fmt.Errorf("falta access token (flag --token o env ORGAUTH_TOKEN)")
		}
		return nil
	}

	root := &cobra.Command{
		Use:           "orgauth",
		Short:         "CLI para la API de autenticación de orgauth (/v2)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.BaseURL, cl.Token, cl.OutFormat = baseURL, token, out
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base de la API (env ORGAUTH_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "Access token (env ORGAUTH_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	// login: imprime el access token; con --out text solo el token para usar en $(...)
	var loginID, loginPassword, loginDevice string
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Login con usuario/email/user_id y password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loginID == "" {
				return fmt.Errorf("--login-id es requerido")
			}
			if loginPassword == "" {
				loginPassword = os.Getenv("ORGAUTH_PASSWORD")
			}
			status, body, err := cl.do(http.MethodPost, "/v2/auth/login", map[string]string{
				"login_id": loginID, "password": loginPassword, "device_id": loginDevice,
			})
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("login fallo: status=%d body=%s", status, strings.TrimSpace(string(body)))
			}
			if cl.OutFormat == "text" {
				var res struct {
					AccessToken string `json:"access_token"`
				}
				if json.Unmarshal(body, &res) == nil {
					fmt.Println(res.AccessToken)
					return nil
				}
			}
			cl.print(status, body)
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginID, "login-id", "", "Username, email o user_id")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (o env ORGAUTH_PASSWORD)")
	loginCmd.Flags().StringVar(&loginDevice, "device-id", "orgauth-cli", "Device id de esta sesión")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Valida el access token (--token)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("validate", http.MethodPost, "/v2/auth/validate", map[string]string{"token": cl.Token})
		},
		PreRunE: requireToken,
	}

	meCmd := &cobra.Command{
		Use:     "me",
		Short:   "Muestra la identidad y permisos del token",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("me", http.MethodGet, "/v2/me", nil)
		},
	}

	logoutAllCmd := &cobra.Command{
		Use:     "logout-all",
		Short:   "Cierra todas las sesiones de la identidad del token",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("logout-all", http.MethodPost, "/v2/auth/logout-all", nil)
		},
	}

	// grupo users (admin)
	usersCmd := &cobra.Command{Use: "users", Short: "Operaciones administrativas sobre usuarios"}

	var lockReason string
	var lockDuration time.Duration
	lockCmd := &cobra.Command{
		Use:     "lock <identity-id>",
		Short:   "Bloquea la cuenta y revoca sus sesiones (sin --duration = indefinido)",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("lock", http.MethodPost, "/v2/admin/users/"+args[0]+"/lock", map[string]any{
				"reason":           lockReason,
				"duration_seconds": int64(lockDuration / time.Second),
			})
		},
	}
	lockCmd.Flags().StringVar(&lockReason, "reason", "", "Motivo del bloqueo")
	lockCmd.Flags().DurationVar(&lockDuration, "duration", 0, "Duración (ej. 30m, 24h)")

	unlockCmd := &cobra.Command{
		Use:     "unlock <identity-id>",
		Short:   "Desbloquea la cuenta",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("unlock", http.MethodPost, "/v2/admin/users/"+args[0]+"/unlock", nil)
		},
	}

	devicesCmd := &cobra.Command{
		Use:     "devices <identity-id>",
		Short:   "Lista los dispositivos con sesión del usuario",
		Args:    cobra.ExactArgs(1),
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("devices", http.MethodGet, "/v2/admin/users/"+args[0]+"/devices", nil)
		},
	}

	catalogCmd := &cobra.Command{
		Use:     "catalog",
		Short:   "Muestra el catálogo de permisos",
		PreRunE: requireToken,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("catalog", http.MethodGet, "/v2/permissions/catalog", nil)
		},
	}

	// wiring
	usersCmd.AddCommand(lockCmd, unlockCmd, devicesCmd)
	root.AddCommand(loginCmd, validateCmd, meCmd, logoutAllCmd, usersCmd, catalogCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
