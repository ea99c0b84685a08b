package snowflake

import "testing"

func TestSnowflakeDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ConnectTimeout <= 0 {
		t.Error("expected a positive default connect timeout")
	}
	if cfg.QueryTimeout <= 0 {
		t.Error("expected a positive default query timeout")
	}
}

func TestSnowflakeConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, true},
		{"missing warehouse", Config{Account: "acct", User: "u", Password: "p"}, true},
		{"missing auth", Config{Account: "acct", User: "u", Warehouse: "w"}, true},
		{"valid password auth", Config{Account: "acct", User: "u", Password: "p", Warehouse: "w"}, false},
		{"valid key-pair auth", Config{Account: "acct", User: "u", PrivateKey: "pem", Warehouse: "w"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
